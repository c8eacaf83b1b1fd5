// xc-recorder - delay tracking and UV imaging for an AHP cross-correlator
//  Copyright (C) 2026, The OpenAstro Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package throttle

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus"
)

const (
	eventsDest   = "org.cacophony.Events"
	eventsPath   = "/org/cacophony/Events"
	eventsMethod = eventsDest + ".Queue"
)

// uses the event api to record that an exposure was throttled at a particular time.
type ThrottledEventRecorder struct {
}

func (er ThrottledEventRecorder) WhenThrottled() {
	if err := queueEvent("throttle", time.Now()); err != nil {
		log.Printf("Could not record throttle event: %s", err)
	}
}

func throttleEvent(eventType string) ([]byte, error) {
	eventDetails := map[string]interface{}{
		"description": map[string]interface{}{
			"type": eventType,
		},
	}
	return json.Marshal(&eventDetails)
}

func queueEvent(eventType string, ts time.Time) error {
	detailsJSON, err := throttleEvent(eventType)
	if err != nil {
		return err
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}

	obj := conn.Object(eventsDest, eventsPath)
	return obj.Call(eventsMethod, 0, detailsJSON, ts.UnixNano()).Err
}
