package shelly

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// NewCover returns the transport for address: a SimCover for SimAddress,
// an RPCClient otherwise.
func NewCover(address string, httpClient *http.Client) Cover {
	if strings.EqualFold(address, SimAddress) {
		return NewSimCover(100)
	}
	return NewRPCClient(address, httpClient)
}

// Load registers an actor for every config. Devices reached over RPC that
// have no configured serial are asked for their device id; an unreachable
// device is still registered and picked up by the next poll.
func (r *Registry) Load(ctx context.Context, configs []ActorConfig, httpClient *http.Client) {
	for _, cfg := range configs {
		cover := NewCover(cfg.Address, httpClient)

		if rpc, ok := cover.(*RPCClient); ok && cfg.Serial == "" {
			infoCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			info, err := rpc.DeviceInfo(infoCtx)
			cancel()
			if err != nil {
				log.Warn().Err(err).Str("actor", cfg.Name).Str("address", cfg.Address).Msg("Device info unavailable")
			} else {
				cfg.Serial = info.ID
				log.Debug().Str("actor", cfg.Name).Str("model", info.Model).Str("fw", info.FwID).Msg("Device identified")
			}
		}

		r.AddActor(cfg, cover)
	}
}
