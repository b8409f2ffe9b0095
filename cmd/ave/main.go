package main

import (
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ave/cmd/ave/commands"
)

func main() {
	ctx := getContext()
	defer belt.Flush(ctx)

	err := commands.Root.ExecuteContext(ctx)
	if err != nil {
		logger.Fatal(ctx, err)
	}
}
