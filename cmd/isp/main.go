package main

import "github.com/goplus/isp/cmd/isp/internal"

func main() {
	internal.Execute()
}
