package api

import "testing"

func TestRegisterRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       RegisterRequest
		wantParam string
	}{
		{"valid", RegisterRequest{Username: "alice", Email: "a@example.org", Password: "pw"}, ""},
		{"missing username", RegisterRequest{Email: "a@example.org", Password: "pw"}, "username"},
		{"blank username", RegisterRequest{Username: "   ", Email: "a@example.org", Password: "pw"}, "username"},
		{"missing email", RegisterRequest{Username: "alice", Password: "pw"}, "email"},
		{"invalid email", RegisterRequest{Username: "alice", Email: "nope", Password: "pw"}, "email"},
		{"missing password", RegisterRequest{Username: "alice", Email: "a@example.org"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantParam == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if err.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", err.Param, tt.wantParam)
			}
			if err.Kind != ErrorKindInvalidRequest {
				t.Errorf("Kind = %q, want invalid_request", err.Kind)
			}
		})
	}
}

func TestCreatePostRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreatePostRequest
		wantErr bool
	}{
		{"forum topic", CreatePostRequest{PostType: "ForumTopic", Title: "t", Content: "c"}, false},
		{"poll with two options", CreatePostRequest{PostType: "Poll", Title: "t", Options: []string{"a", "b"}}, false},
		{"poll with one option", CreatePostRequest{PostType: "Poll", Title: "t", Options: []string{"a"}}, true},
		{"poll with blank options", CreatePostRequest{PostType: "Poll", Title: "t", Options: []string{"a", "  "}}, true},
		{"options on non-poll", CreatePostRequest{PostType: "Announcement", Title: "t", Options: []string{"a"}}, true},
		{"unknown type", CreatePostRequest{PostType: "Petition", Title: "t"}, true},
		{"blank title", CreatePostRequest{PostType: "ForumTopic", Title: "  "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPollOptionLimit(t *testing.T) {
	options := make([]string, MaxPollOptions+1)
	for i := range options {
		options[i] = "option"
	}
	req := CreatePostRequest{PostType: "Poll", Title: "t", Options: options}
	if err := req.Validate(); err == nil {
		t.Error("Validate() = nil for over-limit poll, want error")
	}

	req.Options = options[:MaxPollOptions]
	if err := req.Validate(); err != nil {
		t.Errorf("Validate() = %v for at-limit poll, want nil", err)
	}
}

func TestItemVoteRequestValidate(t *testing.T) {
	valid := ItemVoteRequest{PostID: "3", Choice: "Abstain", AuthToken: "tok"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name string
		req  ItemVoteRequest
	}{
		{"non-numeric post id", ItemVoteRequest{PostID: "abc", Choice: "For", AuthToken: "tok"}},
		{"zero post id", ItemVoteRequest{PostID: "0", Choice: "For", AuthToken: "tok"}},
		{"unknown choice", ItemVoteRequest{PostID: "3", Choice: "Maybe", AuthToken: "tok"}},
		{"lowercase choice", ItemVoteRequest{PostID: "3", Choice: "for", AuthToken: "tok"}},
		{"missing token", ItemVoteRequest{PostID: "3", Choice: "For"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidVoteChoice(t *testing.T) {
	for _, s := range []string{"For", "Against", "Abstain"} {
		if !ValidVoteChoice(s) {
			t.Errorf("ValidVoteChoice(%q) = false", s)
		}
	}
	for _, s := range []string{"for", "FOR", "Yes", ""} {
		if ValidVoteChoice(s) {
			t.Errorf("ValidVoteChoice(%q) = true", s)
		}
	}
}
