// Command yogan-quota enforces execution history retention and usage limits.
//
//	yogan-quota migrate   --config-path ./configs
//	yogan-quota enforce   --config-path ./configs
//	yogan-quota schedule  --config-path ./configs
//	yogan-quota limits    --group 42
//	yogan-quota usage     --group 42
//	yogan-quota health
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
