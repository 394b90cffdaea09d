package opcua

import (
	"testing"

	"github.com/convertersystems/opcua-client/ua"
)

func TestSelectEndpoint(t *testing.T) {
	endpoints := []*ua.EndpointDescription{
		{SecurityPolicyURI: ua.SecurityPolicyURINone, SecurityMode: ua.MessageSecurityModeNone, SecurityLevel: 0},
		{SecurityPolicyURI: ua.SecurityPolicyURIBasic256Sha256, SecurityMode: ua.MessageSecurityModeSign, SecurityLevel: 1},
		{SecurityPolicyURI: ua.SecurityPolicyURIBasic256Sha256, SecurityMode: ua.MessageSecurityModeSignAndEncrypt, SecurityLevel: 2},
	}

	tests := []struct {
		name   string
		policy string
		mode   ua.MessageSecurityMode
		want   string
	}{
		{"no preference picks highest security level", "", ua.MessageSecurityModeInvalid, ua.SecurityPolicyURIBasic256Sha256},
		{"mode only", "", ua.MessageSecurityModeSign, ua.SecurityPolicyURIBasic256Sha256},
		{"policy only picks highest level for that policy", "Basic256Sha256", ua.MessageSecurityModeInvalid, ua.SecurityPolicyURIBasic256Sha256},
		{"policy and mode", "None", ua.MessageSecurityModeNone, ua.SecurityPolicyURINone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectEndpoint(endpoints, tt.policy, tt.mode)
			if got == nil {
				t.Fatalf("SelectEndpoint(%q, %v) = nil, want policy %s", tt.policy, tt.mode, tt.want)
			}
			if got.SecurityPolicyURI != tt.want {
				t.Errorf("SelectEndpoint(%q, %v) = %s, want %s", tt.policy, tt.mode, got.SecurityPolicyURI, tt.want)
			}
		})
	}
}

func TestSelectEndpointNoMatch(t *testing.T) {
	endpoints := []*ua.EndpointDescription{
		{SecurityPolicyURI: ua.SecurityPolicyURINone, SecurityMode: ua.MessageSecurityModeNone},
	}
	if got := SelectEndpoint(endpoints, "Basic256", ua.MessageSecurityModeSignAndEncrypt); got != nil {
		t.Errorf("SelectEndpoint: got %v, want nil", got)
	}
}

func TestSelectEndpointEmpty(t *testing.T) {
	if got := SelectEndpoint(nil, "", ua.MessageSecurityModeInvalid); got != nil {
		t.Errorf("SelectEndpoint(nil): got %v, want nil", got)
	}
}
