package service

import (
	"os"
	"salescoach-go/pkg/log"
	"testing"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}
