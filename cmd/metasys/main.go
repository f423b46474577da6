// Command metasys is the process supervisor's entrypoint; all of its
// behavior lives in internal/cliconfig and internal/supervisor.
package main

import "metasys/internal/cliconfig"

func main() {
	cliconfig.Execute()
}
