package helpers

import (
	"log"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestAbsolutePathFunctin(t *testing.T) {
	found := AbsolutePath("file", "/root/to/")
	expected := "/root/to/file"
	if found != expected {
		t.Errorf("Expected %s but got %s", expected, found)
	}

	found = AbsolutePath("/file", "/root/to/")
	expected = "/file"
	if found != expected {
		t.Errorf("Expected %s but got %s", expected, found)
	}
}

// TestSetLogsFile makes sure that logs will be stored in the expected file
// after logging has been set to it.
func TestSetLogsFile(t *testing.T) {
	testfs := afero.NewMemMapFs()
	logFile := "some/place/coverd.log"

	if err := SetLogsFile(testfs, logFile); err != nil {
		t.Fatalf("setting log file failed: %s", err)
	}
	defer log.SetOutput(os.Stdout)

	const testLogMessage = "test message"
	log.Println(testLogMessage)

	contents, err := afero.ReadFile(testfs, logFile)
	if err != nil {
		t.Fatalf("reading the log file failed: %s", err)
	}

	if !strings.Contains(string(contents), testLogMessage) {
		t.Errorf("the log file did not contain the logged message")
	}
}
