package mechanics_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMechanics(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mechanics Suite")
}
