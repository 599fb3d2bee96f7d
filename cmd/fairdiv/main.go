// Command fairdiv runs the Fair Enough allocation protocol on instance
// files or generated instances.
//
//	fairdiv generate --agents 4 --items 12 --seed 7 -o inst.yaml
//	fairdiv allocate inst.yaml
//	fairdiv allocate --random 100 --agents 5 --items 15 --parallel 8
//	fairdiv mms inst.yaml --agent agent01 --parts 4
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
