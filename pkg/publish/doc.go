// Package publish turns the scraped image folder into a versioned dataset
// artifact.
//
// Two backends implement Publisher. WandbPublisher hands the folder to the
// wandb CLI ("wandb artifact put"), which creates a run, uploads the files as
// one artifact version and finishes the run. LocalPublisher is an offline
// registry that copies the folder into <root>/<project>/<name>/vN and records
// a manifest with per-file SHA-256 sums.
//
//	pub, err := publish.New(cfg, apiKey, log)
//	if err != nil {
//	    return err
//	}
//	res, err := pub.Publish(ctx, publish.RequestFromConfig(cfg))
package publish
