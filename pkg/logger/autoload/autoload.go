// Package autoload initialises the global logger from LOG_ environment
// variables when imported.
package autoload

import (
	configx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/config"
	logx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
