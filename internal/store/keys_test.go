package store

import "testing"

func TestKeysArePartitionedByIdentity(t *testing.T) {
	a := FavoritesKey("a@leroymerlin.com.br")
	b := FavoritesKey("b@leroymerlin.com.br")
	if a == b {
		t.Fatal("favorites keys of different identities must differ")
	}
	if FavoritesKey("a@x") == HistoryKey("a@x") {
		t.Fatal("favorites and history keys must differ")
	}
	if got := HistoryKey("a@x"); got != "portal:history:a@x" {
		t.Errorf("HistoryKey() = %s", got)
	}
}

func TestSessionKey(t *testing.T) {
	if got := SessionKey("abc"); got != "portal:session:abc" {
		t.Errorf("SessionKey() = %s", got)
	}
}
