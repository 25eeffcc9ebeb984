package errors

import (
	goerrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/petalcart/internal/errors"
)

func TestClassify(t *testing.T) {
	assert.Empty(t, Classify(nil))
	assert.Equal(t, "not_found", Classify(fmt.Errorf("find: %w", apperrors.NotFound("gone"))))
	assert.Equal(t, "unavailable", Classify(apperrors.Unavailable(goerrors.New("dial"), "down")))
	assert.Equal(t, "net_operror", Classify(fmt.Errorf("wrap: %w", &net.OpError{Op: "dial"})))
	assert.Equal(t, "errors_errorstring", Classify(goerrors.New("plain")))
}
