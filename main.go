// main is the entry point for the patternscan CLI.
package main

import (
	"github.com/huangsam/patternscan/cmd"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Cannot stop profiling", perr)
	}
	iocache.CloseCaching()
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
