/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: templates.go
Description: Built-in report templates. Used when no template search path is configured;
both bind the assembled record as "report" and reference only documented record fields.
*/

package reporting

// DefaultTextTemplate is the plain-text report body
const DefaultTextTemplate = `Fuzzing report for {{.report.fuzz_target}}
============================================================

Firecracker
  version:        {{.report.firecracker_version}} ({{.report.firecracker_hash}})
  path:           {{.report.path}}

Build
  target:         {{.report.target}}
  profile:        {{.report.profile}}
  rustc:          {{.report.rustc_version}}
  afl:            {{.report.afl_version}}

Host
  {{.report.host_info}}
  fuzzer cores:   {{.report.cores}}

Campaign
  started:        {{.report.start_time}}
  execs done:     {{.report.execs_done}}
  cycles done:    {{.report.cycles_done}}
  stability:      {{.report.stability}}
  unique hangs:   {{.report.unique_hangs}}
  unique crashes: {{.report.unique_crashes}}
  line coverage:  {{.report.coverage}}
`

// DefaultHTMLTemplate is the HTML report body
const DefaultHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Fuzzing report for {{.report.fuzz_target}}</title>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #333; }
        h1 { color: #4a5568; }
        table { border-collapse: collapse; margin-bottom: 20px; }
        th { text-align: left; padding: 4px 16px 4px 0; color: #718096; font-weight: 600; }
        td { padding: 4px 0; }
        .crashes { color: #e53e3e; font-weight: 700; }
    </style>
</head>
<body>
    <h1 id="title">Fuzzing report for {{.report.fuzz_target}}</h1>

    <h2>Firecracker</h2>
    <table id="firecracker">
        <tr><th>Version</th><td class="firecracker_version">{{.report.firecracker_version}}</td></tr>
        <tr><th>Commit</th><td class="firecracker_hash">{{.report.firecracker_hash}}</td></tr>
        <tr><th>Path</th><td class="path">{{.report.path}}</td></tr>
    </table>

    <h2>Build</h2>
    <table id="build">
        <tr><th>Target</th><td class="target">{{.report.target}}</td></tr>
        <tr><th>Profile</th><td class="profile">{{.report.profile}}</td></tr>
        <tr><th>rustc</th><td class="rustc_version">{{.report.rustc_version}}</td></tr>
        <tr><th>AFL</th><td class="afl_version">{{.report.afl_version}}</td></tr>
    </table>

    <h2>Host</h2>
    <table id="host">
        <tr><th>System</th><td class="host_info">{{.report.host_info}}</td></tr>
        <tr><th>Fuzzer cores</th><td class="cores">{{.report.cores}}</td></tr>
    </table>

    <h2>Campaign</h2>
    <table id="campaign">
        <tr><th>Started</th><td class="start_time">{{.report.start_time}}</td></tr>
        <tr><th>Execs done</th><td class="execs_done">{{.report.execs_done}}</td></tr>
        <tr><th>Cycles done</th><td class="cycles_done">{{.report.cycles_done}}</td></tr>
        <tr><th>Stability</th><td class="stability">{{.report.stability}}</td></tr>
        <tr><th>Unique hangs</th><td class="unique_hangs">{{.report.unique_hangs}}</td></tr>
        <tr><th>Unique crashes</th><td class="unique_crashes{{if .report.unique_crashes}} crashes{{end}}">{{.report.unique_crashes}}</td></tr>
        <tr><th>Line coverage</th><td class="coverage">{{.report.coverage}}</td></tr>
    </table>
</body>
</html>
`
