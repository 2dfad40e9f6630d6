// Package autoload configures the global logger from the environment as a
// blank-import side effect.
package autoload

import (
	configx "github.com/prakit/supplyline/pkg/config"
	logx "github.com/prakit/supplyline/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
