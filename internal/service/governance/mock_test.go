package governance

import (
	"fmt"

	"sentinel/internal/testutil"
)

// errTest is a sentinel error for test scenarios.
var errTest = fmt.Errorf("test error")

func strPtr(s string) *string { return &s }

type mockAuditRepo = testutil.MockAuditRepo
