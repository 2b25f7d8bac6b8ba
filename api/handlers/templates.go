package handlers

import (
	"html/template"
)

const (
	templateLanding = "landing"
	templateInbox   = "inbox"
	templateEmail   = "email"
	templateDocs    = "docs"
)

// Templates returns the page templates of the web UI.
func Templates() *template.Template {
	return template.Must(template.New("pages").Parse(pageTemplates))
}

const pageTemplates = `
{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.}} - TempMail</title>
<script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-slate-950 text-slate-200 min-h-screen">
<nav class="border-b border-slate-800 px-6 py-4 flex justify-between">
  <a href="/" class="font-bold text-white">TempMail</a>
  <a href="/docs" class="text-slate-400 hover:text-white">API</a>
</nav>
{{end}}

{{define "footer"}}
</body>
</html>{{end}}

{{define "landing"}}{{template "header" "Disposable inbox"}}
<main class="mx-auto max-w-3xl px-4 py-12 grid gap-8 md:grid-cols-2">
  <form method="POST" action="/auth" class="rounded-xl border border-slate-800 p-6">
    <h2 class="text-lg font-semibold text-white mb-4">New address</h2>
    <input type="hidden" name="action" value="create">
    <select name="domain" class="w-full rounded bg-slate-900 p-2 mb-4">
      {{range .Domains}}<option value="{{.}}">{{.}}</option>{{end}}
    </select>
    <button type="submit" class="w-full rounded bg-blue-600 p-2 text-white">Create</button>
  </form>
  <form method="POST" action="/auth" class="rounded-xl border border-slate-800 p-6">
    <h2 class="text-lg font-semibold text-white mb-4">Restore address</h2>
    <input type="hidden" name="action" value="restore">
    <input type="email" name="address" placeholder="address" required class="w-full rounded bg-slate-900 p-2 mb-3">
    <input type="text" name="secret" placeholder="secret key" required class="w-full rounded bg-slate-900 p-2 mb-4">
    <button type="submit" class="w-full rounded bg-slate-700 p-2 text-white">Restore</button>
  </form>
</main>
{{template "footer"}}{{end}}

{{define "inbox"}}{{template "header" "Inbox"}}
<main class="mx-auto max-w-5xl px-4 py-8">
  <div class="rounded-xl border border-slate-800 p-6 mb-6 flex flex-wrap justify-between gap-4">
    <div>
      <div class="text-xs uppercase text-slate-500">Address</div>
      <div class="font-mono text-xl text-white">{{.Address}}</div>
      <div class="text-xs uppercase text-slate-500 mt-3">Secret key</div>
      <div class="font-mono text-sm text-slate-400">{{.Secret}}</div>
    </div>
    <div class="flex items-start gap-2">
      <a href="/" class="rounded bg-slate-800 px-4 py-2">Refresh</a>
      <a href="/logout" class="rounded bg-red-900 px-4 py-2">Logout</a>
    </div>
  </div>
  {{if .Emails}}
  <ul class="divide-y divide-slate-800 rounded-xl border border-slate-800">
    {{range .Emails}}
    <li>
      <a href="/email/{{.ID}}" class="block p-4 hover:bg-slate-900">
        <div class="flex justify-between text-sm">
          <span class="font-semibold text-white">{{.From}}</span>
          <span class="text-slate-500">{{.Date}}</span>
        </div>
        <div class="text-slate-200">{{.Subject}}</div>
        <div class="text-sm text-slate-500 truncate">{{.Preview}}</div>
      </a>
    </li>
    {{end}}
  </ul>
  {{else}}
  <p class="text-center text-slate-500 py-16">Waiting for incoming mail...</p>
  {{end}}
</main>
{{template "footer"}}{{end}}

{{define "email"}}{{template "header" .Subject}}
<main class="mx-auto max-w-5xl px-4 py-8">
  <a href="/" class="text-slate-400 hover:text-white">&larr; Back to Inbox</a>
  <div class="mt-6 rounded-xl border border-slate-800 overflow-hidden">
    <div class="bg-slate-900 p-6">
      <h1 class="text-2xl font-bold text-white mb-4">{{.Subject}}</h1>
      <div class="text-sm text-slate-400">From <span class="text-white">{{.From}}</span></div>
      <div class="text-sm text-slate-400">To <span class="text-white">{{.To}}</span></div>
      <div class="text-sm text-slate-500">{{.Date}}</div>
      {{if .HasRaw}}<a href="/email/{{.ID}}/raw" class="text-sm text-slate-400 hover:text-white">View source</a>{{end}}
    </div>
    {{if .IsHTML}}
    <iframe srcdoc="{{.Body}}"
      class="w-full bg-white"
      style="min-height: 600px; border: 0;"
      sandbox="allow-popups allow-popups-to-escape-sandbox allow-same-origin"></iframe>
    {{else}}
    <div class="p-8 whitespace-pre-wrap font-mono text-sm text-slate-800 bg-white min-h-[400px]">{{.TextBody}}</div>
    {{end}}
  </div>
</main>
{{template "footer"}}{{end}}

{{define "docs"}}{{template "header" "API"}}
<main class="mx-auto max-w-3xl px-4 py-8 space-y-8">
  <section>
    <h2 class="text-xl font-bold text-white">Create an address</h2>
    <pre class="bg-slate-900 rounded p-4 mt-2 text-sm">GET /api/new?domain={{index .Domains 0}}</pre>
    <p class="text-slate-400 mt-2">Available domains: {{range $i, $d := .Domains}}{{if $i}}, {{end}}<code>{{$d}}</code>{{end}}</p>
    <pre class="bg-slate-900 rounded p-4 mt-2 text-sm">{
  "address": "bodi42{{index .Domains 0}}",
  "secret": "3f2a..."
}</pre>
  </section>
  <section>
    <h2 class="text-xl font-bold text-white">List messages</h2>
    <pre class="bg-slate-900 rounded p-4 mt-2 text-sm">GET /api/messages?address=ADDRESS&amp;secret=SECRET</pre>
    <p class="text-slate-400 mt-2">Messages are returned newest first. <code>type</code> is <code>html</code> or <code>text</code>.</p>
    <pre class="bg-slate-900 rounded p-4 mt-2 text-sm">[
  {
    "id": "1740830400000-x1y2z3",
    "from": "sender@example.org",
    "to": "bodi42{{index .Domains 0}}",
    "subject": "Hello",
    "date": "2025-03-01T12:00:00.000Z",
    "body": "...",
    "type": "html"
  }
]</pre>
  </section>
  <section>
    <h2 class="text-xl font-bold text-white">Lifetimes</h2>
    <p class="text-slate-400">Emails live {{.EmailTTL}}. Addresses live {{.AccountTTL}} and every received email extends them.</p>
  </section>
</main>
{{template "footer"}}{{end}}
`
