package main

import (
	"fmt"
	"runtime"
)

// version/commit 通过 -ldflags "-X main.version=... -X main.commit=..." 注入。
var (
	version = "0.1.0"
	commit  = "dev"
)

func fullVersion() string {
	return fmt.Sprintf("artcache %s (%s, %s)", version, commit, runtime.Version())
}

// printVersion 输出注入的版本 + 提交信息。
func printVersion() {
	fmt.Fprintln(stdOut, fullVersion())
}
