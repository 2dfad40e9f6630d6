package routernode

import (
	"fmt"

	contractx "github.com/prakit/supplyline/agent/contract"
	"github.com/prakit/supplyline/agent/envelope"
)

func Finalize(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{
		Envelope: envelope.FromHandler(in.Handler, in.HandlerResp, in.HandlerErr),
	}, nil
}
