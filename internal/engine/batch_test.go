package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformBatch_Order(t *testing.T) {
	e := loadExample(t, WithWorkers(3))

	names := []string{"scenario-a.json", "scenario-b.json", "scenario-c.json", "scenario-d.json", "scenario-mismatch.json"}

	var inputs []Input
	for range 4 {
		for _, name := range names {
			inputs = append(inputs, Input{Name: name, Data: readScenario(t, name)})
		}
	}

	outputs, err := e.TransformBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, outputs, len(inputs))

	want := map[string]int{
		"scenario-a.json":        ExitOK,
		"scenario-b.json":        ExitFieldError,
		"scenario-c.json":        ExitFieldError,
		"scenario-d.json":        ExitOK,
		"scenario-mismatch.json": ExitFatal,
	}

	for i, out := range outputs {
		assert.Equal(t, inputs[i].Name, out.Name)
		require.NotNil(t, out.Result, "output %d", i)
		assert.Equal(t, want[out.Name], out.Result.ExitCode(), out.Name)
	}

	// Batch results match single transforms.
	single, err := e.TransformJSON(inputs[0].Data).MarshalJSON()
	require.NoError(t, err)

	batched, err := outputs[0].Result.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(single), string(batched))
}

func TestTransformBatch_Cancelled(t *testing.T) {
	e := loadExample(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := make([]Input, 5)
	for i := range inputs {
		inputs[i] = Input{Name: fmt.Sprintf("doc-%d", i), Data: []byte(`{}`)}
	}

	outputs, err := e.TransformBatch(ctx, inputs)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, outputs, len(inputs))

	for _, out := range outputs {
		assert.Nil(t, out.Result)
	}
}

func TestTransformBatch_Empty(t *testing.T) {
	e := loadExample(t)

	outputs, err := e.TransformBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, outputs)
}
