// Package domain turns Climacell / Tomorrow.io weather payloads into driver
// values for a single site.
//
// # Payload Shapes
//
// The provider has changed its response layout across API versions without
// signalling it reliably, so each interval is classified by structure:
//
//	values  {"startTime": "...", "values": {"temperatureMax": 30, "humidityAvg": 61}}
//	nested  {"temp": [{"min": {"value": 18, "units": "C"}}, {"max": {"value": 30, "units": "C"}}]}
//	flat    {"temp": {"value": 21.4, "units": "C"}, "observation_time": {"value": "..."}}
//
// Wrappers with an explicit "units" are converted to metric on the way in.
// Values without units are taken as metric, which is what the client requests.
//
// # Units
//
// Frames are always metric: °C, hPa, m/s, mm, mm/h, km, %, W/m². Conversion to
// the display system happens once, per driver, just before the change test:
//
//	us      °F, inHg, mph, in/h, in, mi
//	uk      °F, hPa, km/h, in/h, in, mi
//	metric  unchanged
//
// # Dates
//
// Forecast days are keyed by the literal YYYY-MM-DD prefix of the interval's
// start time. The offset is never applied, so the day of week and day of year
// match what the provider labelled the interval, whatever the host timezone.
//
// # Evapotranspiration
//
// Daily reference ETo follows FAO-56 Penman-Monteith. The provider does not
// report a daily radiation sum, so shortwave radiation is estimated from the
// temperature range (Hargreaves, kRs = 0.16). See [ComputeETo].
//
// # Change Detection
//
// A driver is re-sent only when its display value moves by at least half a unit
// in the last displayed decimal, or when a resend is forced. See [ShouldEmit].
package domain
