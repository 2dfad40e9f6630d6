package routernode

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	contractx "github.com/prakit/supplyline/agent/contract"
	statex "github.com/prakit/supplyline/agent/state"
)

func LoadSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.Request.SessionID == "" {
		in.Ephemeral = true
		in.Session = statex.NewSession("ephemeral-"+uuid.NewString(), in.Now)
		return in, nil
	}

	sess, err := store.GetOrCreate(ctx, in.Request.SessionID)
	if err != nil {
		return nil, err
	}
	in.Session = sess
	return in, nil
}
