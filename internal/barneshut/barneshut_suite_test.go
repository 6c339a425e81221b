package barneshut_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBarnesHut(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "BarnesHut Suite")
}
