package cliconfig

// ExampleConfig is printed by "-C" (§6) and exercises every directive
// named in §4.6, so parsing it back produces zero errors — the
// round-trip property from §8.
const ExampleConfig = `# metasys example configuration
# Lines starting with '#' are comments; blank lines are ignored.
# Directive keywords are case-insensitive.

Description A sample metasys instance

LogDir /var/log/metasys

# Ungrouped children start first, in the order they are declared.
Process web /usr/bin/webserver --port 8080
Process worker /usr/bin/worker --queue default

# Grouped children start after all ungrouped children, groups in
# alphabetical order, children within a group in declaration order.
ProcessBackend api /usr/bin/api-server
ProcessBackend cache /usr/bin/cache-server

StartDelay 10
RestartDelay 30
TermWait 30

Email ops@example.com,oncall@example.com
MTA localhost

SysReport Daily
HTMLReport /var/log/metasys/status.html:60
`
