package patient

import (
	"os"
	"testing"

	"github.com/hospitalward/ward-api/internal/handler"
)

func TestMain(m *testing.M) {
	handler.RegisterValidations()
	os.Exit(m.Run())
}
