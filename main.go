package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// 退出码：产物未命中单独使用 3，便于构建脚本区分“需要重新编译”与真正的失败。
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
	exitMiss  = 3
)

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
	stdIn  io.Reader = os.Stdin
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run 执行 CLI 并返回退出码，方便测试。
func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdIn)
	root.SetOut(stdOut)
	root.SetErr(stdErr)

	err := root.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errCacheMiss):
		fmt.Fprintln(stdErr, "cache miss")
		return exitMiss
	}

	var usage usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(stdErr, "参数错误: %v\n", err)
		return exitUsage
	}
	fmt.Fprintf(stdErr, "执行失败: %v\n", err)
	return exitError
}

// errCacheMiss 表示 get 未命中，不是错误，仅用于映射退出码。
var errCacheMiss = errors.New("cache miss")

// usageError 标记参数/标志解析失败。
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }
