package config

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
)

func TestScheduledHashtagSets(t *testing.T) {
	tests := []struct {
		raw  string
		want [][]string
	}{
		{"", nil},
		{" ; ,", nil},
		{"coffeedallas", [][]string{{"coffeedallas"}}},
		{"coffeedallas, placesindallas ; dallasjazz,,", [][]string{{"coffeedallas", "placesindallas"}, {"dallasjazz"}}},
	}
	for _, tt := range tests {
		c := &Config{}
		c.Scheduler.Hashtags = tt.raw
		if got := c.ScheduledHashtagSets(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: got %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestConnectionStrings(t *testing.T) {
	c := &Config{}
	c.Postgres.User = "app"
	c.Postgres.Pass = "pw"
	c.Postgres.Host = "db"
	c.Postgres.Port = 5432
	c.Postgres.Name = "discovery"
	c.Postgres.SslMode = "disable"
	c.Postgres.MaxConns = 10

	if got := c.GetURL(); got != "postgres://app:pw@db:5432/discovery?pool_max_conns=10&sslmode=disable" {
		t.Errorf("unexpected url %q", got)
	}
	if got := c.GetDSN(); !strings.Contains(got, "dbname='discovery'") || !strings.Contains(got, "host='db'") {
		t.Errorf("unexpected dsn %q", got)
	}
}

func TestConnectionStrings_EscapeCredentials(t *testing.T) {
	c := &Config{}
	c.Postgres.User = "app@corp"
	c.Postgres.Pass = "p:w/d@1 'x'"
	c.Postgres.Host = "db"
	c.Postgres.Port = 5432
	c.Postgres.Name = "discovery"
	c.Postgres.SslMode = "disable"
	c.Postgres.MaxConns = 10

	u, err := url.Parse(c.GetURL())
	if err != nil {
		t.Fatalf("url must stay parseable: %v", err)
	}
	pass, _ := u.User.Password()
	if u.User.Username() != "app@corp" || pass != "p:w/d@1 'x'" {
		t.Errorf("credentials did not round trip: %q %q", u.User.Username(), pass)
	}
	if u.Host != "db:5432" || u.Path != "/discovery" {
		t.Errorf("unexpected host %q path %q", u.Host, u.Path)
	}

	if got := c.GetDSN(); !strings.Contains(got, `password='p:w/d@1 \'x\''`) {
		t.Errorf("password must be quoted in dsn, got %q", got)
	}
}
