// Package radiko binds the radiko service API: the two-stage auth
// handshake (anonymous and premium), the station/region directory,
// daily program schedules, and time-free stream endpoint descriptors.
//
// A recording flows through the package as:
//
//	session, _ := auth.Login(ctx, mail, password)     // optional, non-fatal
//	creds, err := auth.Authorize(ctx, session)        // fatal on error
//	area, err := directory.AreaIDOf(ctx, stationID)
//	info, err := programs.Resolve(ctx, stationID, area, start) // best-effort
//	cands, err := streams.Candidates(ctx, stationID, creds.Premium(), creds.AreaID, area)
//
// Every constructor takes the shared internal/http Client; endpoint
// URLs live in unexported fields so tests can point them at fakes.
package radiko
