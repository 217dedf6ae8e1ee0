// Package scraper runs one image search from query to files on disk.
//
// A run moves through a fixed set of states:
//
//	idle -> token_fetching -> token_found -> collecting -> downloading -> done
//	                       \-> token_not_found -> done
//
// collecting goes straight to done when no URLs were found, so the output
// directory is only created when there is something to write. A missing
// token, an early end of results, or individual image failures never fail
// the run; they show up in the returned RunSummary instead.
//
// Usage:
//
//	s := scraper.New(cfg, logger.GetLogger())
//	summary, err := s.Run(ctx)
//	if err != nil {
//	    return err // the output directory could not be prepared
//	}
//	fmt.Printf("saved %d/%d\n", summary.Saved, summary.URLsFound)
package scraper
