package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChangeView_Getters(t *testing.T) {
	var c = &changeView{
		newViewNumber: 2,
		reason:        cvTimeout,
	}

	require.EqualValues(t, 2, c.NewViewNumber())
	require.EqualValues(t, cvTimeout, c.Reason())
}
