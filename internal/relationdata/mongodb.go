// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relationdata

import (
	"net/url"

	"github.com/canonical/gunicorn-k8s-operator/core/relation"
)

// mongodbSettings derives the template settings for the mongodb-client
// relation. The provider publishes credentials in the application
// databag once the database has been created; until then the relation
// contributes nothing to the context.
func mongodbSettings(data relation.Data) (relation.Settings, error) {
	app := data.Application
	username := app["username"]
	endpoints := app["endpoints"]
	if username == "" || endpoints == "" {
		return nil, nil
	}

	out := relation.Settings{
		"database":  app["database"],
		"username":  username,
		"password":  app["password"],
		"endpoints": endpoints,
	}
	out["uri"] = mongodbURI(app)
	return out, nil
}

// mongodbURI assembles a connection URI from the published fields.
// Endpoints are a comma separated list of host:port pairs, which the
// mongodb scheme accepts verbatim in the authority.
func mongodbURI(app relation.Settings) string {
	uri := &url.URL{
		Scheme: "mongodb",
		Host:   app["endpoints"],
	}
	if password := app["password"]; password != "" {
		uri.User = url.UserPassword(app["username"], password)
	} else {
		uri.User = url.User(app["username"])
	}
	if database := app["database"]; database != "" {
		uri.Path = "/" + database
	}
	return uri.String()
}
