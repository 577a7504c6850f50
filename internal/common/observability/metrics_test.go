package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNoop(t *testing.T) {
	o := NewNoop()
	require.NotNil(t, o.Tracer())

	assert.NotPanics(t, func() {
		ctx, span := o.Tracer().Start(context.Background(), "dispatch")
		o.RecordDispatch(ctx, "GeneralChat", "success", 12*time.Millisecond)
		span.End()
		o.Shutdown()
	})
}

func TestNew(t *testing.T) {
	o, err := New("sap-address-assistant-test")
	require.NoError(t, err)
	defer o.Shutdown()

	ctx, span := o.Tracer().Start(context.Background(), "dispatch")
	assert.True(t, span.SpanContext().IsValid())
	o.RecordDispatch(ctx, "CreateTelephoneAddress", "error", time.Second)
	span.End()
}
