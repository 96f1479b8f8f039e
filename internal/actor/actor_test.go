package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/actorconv/internal/nn"
	"github.com/born-ml/actorconv/internal/tensor"
)

func TestBuild_Topology(t *testing.T) {
	model, err := Build()
	require.NoError(t, err)

	assert.Equal(t, StateSize, model.Input().Width())

	layers := model.WeightedLayers()
	require.Len(t, layers, 4)

	wantShapes := []tensor.Shape{{31, 128}, {128, 128}, {128, 64}, {64, 1}}
	wantActs := []nn.Activation{nn.ReLU, nn.ReLU, nn.ReLU, nn.Sigmoid}
	for i, layer := range layers {
		assert.Equal(t, DefaultLayerNames[i], layer.Name())
		assert.Equal(t, wantShapes[i], layer.KernelShape(), "layer %d", i)
		assert.Equal(t, tensor.Shape{wantShapes[i][1]}, layer.Bias().Shape(), "layer %d", i)
		assert.Equal(t, wantActs[i], layer.Activation(), "layer %d", i)
	}
}

func TestNew_IsUnbuilt(t *testing.T) {
	model, err := New()
	require.NoError(t, err)

	for _, layer := range model.WeightedLayers() {
		assert.False(t, layer.Built())
	}
}

func TestNew_CustomNames(t *testing.T) {
	names := []string{"dense_Dense1", "dense_Dense2", "dense_Dense3", "dense_Dense4"}
	model, err := New(names...)
	require.NoError(t, err)

	for i, layer := range model.WeightedLayers() {
		assert.Equal(t, names[i], layer.Name())
	}

	_, err = New("only", "three", "names")
	require.Error(t, err)
}
