package router

import (
	"context"

	"github.com/angelmondragon/orderflow/internal/analytics/types"
)

type fakeWriter struct {
	inserted []types.OrderEventRow
	err      error
}

func (f *fakeWriter) InsertOrderEvent(_ context.Context, row types.OrderEventRow) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, row)
	return nil
}
