// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relationdata

import (
	"net/url"
	"strings"

	"github.com/juju/errors"

	"github.com/canonical/gunicorn-k8s-operator/core/relation"
)

// pgSettings derives the template settings for the pg relation from
// the pgsql interface databags. The primary unit publishes the master
// connection string in key=value form and any standby connection
// strings newline separated; templates see the master as conn_str and
// db_uri, and the standbys as a comma separated ro_uris.
func pgSettings(data relation.Data) (relation.Settings, error) {
	_, raw, ok := data.PrimaryUnit()
	if !ok {
		return nil, nil
	}
	master := raw["master"]
	if master == "" {
		return nil, nil
	}

	out := relation.Settings{
		"conn_str": master,
	}
	uri, err := connStringURI(master)
	if err != nil {
		return nil, errors.Annotatef(err, "master connection string")
	}
	out["db_uri"] = uri

	if standbys := raw["standbys"]; standbys != "" {
		var uris []string
		for _, connStr := range strings.Split(standbys, "\n") {
			if connStr = strings.TrimSpace(connStr); connStr == "" {
				continue
			}
			uri, err := connStringURI(connStr)
			if err != nil {
				return nil, errors.Annotatef(err, "standby connection string")
			}
			uris = append(uris, uri)
		}
		out["ro_uris"] = strings.Join(uris, ",")
	}
	return out, nil
}

// connStringURI converts a libpq key=value connection string, as
// published by the pgsql interface, into a postgresql:// URI.
func connStringURI(connStr string) (string, error) {
	attrs := make(map[string]string)
	for _, field := range strings.Fields(connStr) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return "", errors.NotValidf("connection string field %q", field)
		}
		attrs[key] = value
	}
	for _, required := range []string{"host", "dbname"} {
		if attrs[required] == "" {
			return "", missingAdapterField("pg", required)
		}
	}

	uri := &url.URL{
		Scheme: "postgresql",
		Host:   attrs["host"],
		Path:   "/" + attrs["dbname"],
	}
	if port := attrs["port"]; port != "" {
		uri.Host = uri.Host + ":" + port
	}
	if user := attrs["user"]; user != "" {
		if password := attrs["password"]; password != "" {
			uri.User = url.UserPassword(user, password)
		} else {
			uri.User = url.User(user)
		}
	}
	if options := attrs["options"]; options != "" {
		values := url.Values{}
		for _, option := range strings.Split(options, ",") {
			values.Add("options", option)
		}
		uri.RawQuery = values.Encode()
	}
	return uri.String(), nil
}
