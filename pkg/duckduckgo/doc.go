// Package duckduckgo is a client for the DuckDuckGo image search backend.
//
// A scrape takes two steps. FetchToken loads the regular search page and
// pulls the vqd session token out of its body. CollectImageURLs then pages
// through the i.js JSON endpoint with that token, 100 results at a time, until
// it has enough URLs or the results run out:
//
//	client := duckduckgo.NewClient(cfg.Search, log)
//	token, err := client.FetchToken(ctx, "studio ghibli")
//	if err != nil {
//	    // errors.IsType(err, errors.ErrorTypeTokenNotFound)
//	}
//	urls := client.CollectImageURLs(ctx, "studio ghibli", token, 200)
//
// Every request carries the same browser-like header set. FetchImage reuses it
// for downloading the images themselves.
package duckduckgo
