package main

import (
	"context"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/sirupsen/logrus"
	"github.com/xaionaro-go/ave/pkg/observability"
)

func getContext() context.Context {
	observability.LogLevelFilter.SetLevel(logger.LevelWarning)

	ll := xlogrus.DefaultLogrusLogger()
	if formatter, ok := ll.Formatter.(*logrus.TextFormatter); ok {
		formatter.FullTimestamp = true
	}
	l := xlogrus.New(ll).WithLevel(logger.LevelTrace).WithPreHooks(&observability.LogLevelFilter)

	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx = belt.WithField(ctx, "program", "ave")
	ctx = belt.WithField(ctx, "pid", os.Getpid())

	l = logger.FromCtx(ctx)
	logger.Default = func() logger.Logger {
		return l
	}
	return ctx
}
