package governance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	in := map[string]any{
		"username":    "bob",
		"password":    "hunter22",
		"newPassword": "hunter23",
		"PWD":         "x",
		"apiKey":      "k",
		"jwt_token":   "t",
		"profile": map[string]any{
			"mail":          "bob@example.test",
			"client_secret": "s",
			"nested":        []any{map[string]any{"privateKey": "p", "ok": 1}},
		},
		"labels": map[string]string{"credentialId": "c", "team": "ops"},
	}

	out := Redact(in)

	assert.Equal(t, "bob", out["username"])
	for _, k := range []string{"password", "newPassword", "PWD", "apiKey", "jwt_token"} {
		assert.Equal(t, RedactedValue, out[k], k)
	}
	profile := out["profile"].(map[string]any)
	assert.Equal(t, "bob@example.test", profile["mail"])
	assert.Equal(t, RedactedValue, profile["client_secret"])
	nested := profile["nested"].([]any)[0].(map[string]any)
	assert.Equal(t, RedactedValue, nested["privateKey"])
	assert.Equal(t, 1, nested["ok"])
	labels := out["labels"].(map[string]any)
	assert.Equal(t, RedactedValue, labels["credentialId"])
	assert.Equal(t, "ops", labels["team"])

	// input untouched
	assert.Equal(t, "hunter22", in["password"])
	assert.Equal(t, "s", in["profile"].(map[string]any)["client_secret"])
}

func TestRedact_Nil(t *testing.T) {
	assert.Nil(t, Redact(nil))
	assert.Empty(t, Redact(map[string]any{}))
}

type bindSettings struct {
	Host         string `json:"host"`
	BindPassword string `json:"bindPassword"`
}

func TestRedact_TypedContainers(t *testing.T) {
	in := map[string]any{
		"users": []map[string]any{{"name": "alice", "password": "hunter22"}},
		"nested": map[string]map[string]any{
			"cred": {"secret": "s3cr3t"},
			"meta": {"team": "ops"},
		},
		"settings":    bindSettings{Host: "dc1", BindPassword: "svc-pass"},
		"settingsPtr": &bindSettings{Host: "dc2", BindPassword: "svc-pass"},
		"byGroup":     map[string][]map[string]string{"admins": {{"apiKey": "k", "uid": "1"}}},
		"callback":    func() {},
		"count":       3,
	}

	out := Redact(in)

	users := out["users"].([]any)[0].(map[string]any)
	assert.Equal(t, "alice", users["name"])
	assert.Equal(t, RedactedValue, users["password"])

	nested := out["nested"].(map[string]any)
	assert.Equal(t, RedactedValue, nested["cred"].(map[string]any)["secret"])
	assert.Equal(t, "ops", nested["meta"].(map[string]any)["team"])

	for _, k := range []string{"settings", "settingsPtr"} {
		s := out[k].(map[string]any)
		assert.Equal(t, RedactedValue, s["bindPassword"], k)
		assert.NotEmpty(t, s["host"], k)
	}

	admins := out["byGroup"].(map[string]any)["admins"].([]any)[0].(map[string]any)
	assert.Equal(t, RedactedValue, admins["apiKey"])
	assert.Equal(t, "1", admins["uid"])

	assert.Equal(t, RedactedValue, out["callback"])
	assert.Equal(t, 3, out["count"])

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	for _, secret := range []string{"hunter22", "s3cr3t", "svc-pass", `"k"`} {
		assert.NotContains(t, string(raw), secret)
	}
}
