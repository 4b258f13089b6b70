// Package weather is a client for the OpenWeatherMap current-weather API.
//
// A Client caches the normalized report for up to 10 cities and serves a
// cached report for 10 minutes before fetching again. Clients are created
// through a Registry, which allows at most one live client per API key:
//
//	c, err := weather.Create(apiKey, false)
//	if err != nil {
//		return err
//	}
//	defer weather.Delete(apiKey)
//
//	report, err := c.GetWeather(ctx, "Moscow")
//
// With polling enabled the client also re-fetches every cached city on a
// fixed interval, so GetWeather keeps answering from fresh data.
//
// All lookups and fetches for one client run under a single lock. A slow
// upstream call for one city therefore delays every other call on the same
// client, including the background refresh.
package weather
