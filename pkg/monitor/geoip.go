/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package monitor

import (
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"

	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/models"
)

type countryLookup interface {
	Lookup(ip net.IP, result interface{}) error
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// GeoIPEnricher sets the country codes of an event from a MaxMind
// GeoLite2/GeoIP2 country or city database.
type GeoIPEnricher struct {
	db     countryLookup
	closer func() error
	logger logger.Logger
}

// OpenGeoIP opens the database at path.
func OpenGeoIP(path string, log logger.Logger) (*GeoIPEnricher, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database %s: %w", path, err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	log.Info().
		Str("path", path).
		Str("type", reader.Metadata.DatabaseType).
		Msg("GeoIP database loaded")

	return &GeoIPEnricher{db: reader, closer: reader.Close, logger: log}, nil
}

// Enrich implements Enricher.
func (g *GeoIPEnricher) Enrich(ev *models.NetworkEvent) {
	if ev.SourceCountry == "" {
		ev.SourceCountry = g.country(ev.SourceIP)
	}

	if ev.DestinationCountry == "" {
		ev.DestinationCountry = g.country(ev.DestinationIP)
	}
}

func (g *GeoIPEnricher) country(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() {
		return ""
	}

	var rec countryRecord
	if err := g.db.Lookup(ip, &rec); err != nil {
		g.logger.Debug().Err(err).Str("ip", addr).Msg("GeoIP lookup failed")
		return ""
	}

	return rec.Country.ISOCode
}

func (g *GeoIPEnricher) Close() error {
	if g.closer == nil {
		return nil
	}

	return g.closer()
}
