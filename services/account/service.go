package account

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailtemp/tempmail/config"
	tempmail_errors "github.com/mailtemp/tempmail/errors"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/internal/tracing"
	"github.com/mailtemp/tempmail/internal/utils"
)

const (
	consonants = "bdfghjklmnprstvz"
	vowels     = "aeiou"

	secretBytes       = 16
	maxCreateAttempts = 5
)

type accountService struct {
	repository interfaces.AccountRepository
	domains    []string
	accountTTL time.Duration
	now        func() time.Time
}

func NewAccountService(repository interfaces.AccountRepository, cfg *config.AppConfig) interfaces.AccountService {
	return &accountService{
		repository: repository,
		domains:    cfg.NormalizedDomains(),
		accountTTL: cfg.AccountTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *accountService) Domains() []string {
	return s.domains
}

func (s *accountService) Create(ctx context.Context, domain string) (*models.Account, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountService.Create")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	domain, err := s.resolveDomain(domain)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		name, err := readableName()
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(err, "failed to generate address")
		}
		address := name + domain

		taken, err := s.repository.Exists(ctx, address)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(err, "failed to check address")
		}
		if taken {
			continue
		}

		secret, err := newSecret()
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(err, "failed to generate secret")
		}

		now := s.now()
		account := &models.Account{
			Address:   address,
			Secret:    secret,
			CreatedAt: now,
			ExpiresAt: now.Add(s.accountTTL),
		}
		if err := s.repository.Create(ctx, account); err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(err, "failed to save account")
		}
		tracing.TagAddress(span, address)
		return account, nil
	}

	err = errors.Errorf("no free address on %s after %d attempts", domain, maxCreateAttempts)
	tracing.TraceErr(span, err)
	return nil, err
}

func (s *accountService) Authenticate(ctx context.Context, address, secret string) (*models.Account, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountService.Authenticate")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	address = utils.NormalizeAddress(address)
	tracing.TagAddress(span, address)
	if address == "" || secret == "" {
		return nil, tempmail_errors.ErrAccountNotFound
	}

	return s.lookup(ctx, span, address, secret)
}

func (s *accountService) Restore(ctx context.Context, address, secret string) (*models.Account, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountService.Restore")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	validation := mailvalidate.ValidateEmailSyntax(utils.NormalizeAddress(address))
	if !validation.IsValid {
		return nil, tempmail_errors.ErrInvalidAddress
	}
	address = strings.ToLower(validation.CleanEmail)
	tracing.TagAddress(span, address)

	return s.lookup(ctx, span, address, strings.TrimSpace(secret))
}

func (s *accountService) lookup(ctx context.Context, span opentracing.Span, address, secret string) (*models.Account, error) {
	account, err := s.repository.GetByAddress(ctx, address)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to load account")
	}
	if account == nil || account.Expired(s.now()) {
		return nil, tempmail_errors.ErrAccountNotFound
	}
	if subtle.ConstantTimeCompare([]byte(account.Secret), []byte(secret)) != 1 {
		return nil, tempmail_errors.ErrInvalidSecret
	}
	return account, nil
}

func (s *accountService) Exists(ctx context.Context, address string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountService.Exists")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	address = utils.NormalizeAddress(address)
	tracing.TagAddress(span, address)

	exists, err := s.repository.Exists(ctx, address)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	return exists, nil
}

// KeepAlive pushes the expiry of a live account one account TTL past now. It
// never revives an expired account.
func (s *accountService) KeepAlive(ctx context.Context, address string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountService.KeepAlive")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	address = utils.NormalizeAddress(address)
	tracing.TagAddress(span, address)

	extended, err := s.repository.ExtendExpiry(ctx, address, s.now().Add(s.accountTTL))
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	span.LogKV("extended", extended)
	return extended, nil
}

func (s *accountService) resolveDomain(domain string) (string, error) {
	if len(s.domains) == 0 {
		return "", tempmail_errors.ErrInvalidDomain
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return s.domains[0], nil
	}
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}
	if !slices.Contains(s.domains, domain) {
		return "", tempmail_errors.ErrInvalidDomain
	}
	return domain, nil
}

// readableName builds a pronounceable local part: consonant, vowel,
// consonant, vowel and a number below 100, e.g. "bodi42".
func readableName() (string, error) {
	var sb strings.Builder
	for i, set := range []string{consonants, vowels, consonants, vowels} {
		idx, err := randomInt(len(set))
		if err != nil {
			return "", errors.Wrapf(err, "letter %d", i)
		}
		sb.WriteByte(set[idx])
	}
	number, err := randomInt(100)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", sb.String(), number), nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func newSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
