package dispatch

import (
	"github.com/sintia-bot/sintia/pkg/config"
	"github.com/sintia-bot/sintia/pkg/httpx"
	"github.com/sintia-bot/sintia/pkg/ratelimit"
	"github.com/sintia-bot/sintia/pkg/store"
)

// Env is what command handlers get to work with: the rate limiter, the
// store, the HTTP helper for outward integrations and the loaded config.
// One Env is built at startup and shared by reference.
type Env struct {
	Store   store.Store
	Limiter *ratelimit.Limiter
	HTTP    *httpx.Client
	Cfg     *config.Config
}
