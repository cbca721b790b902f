// Package jobmatch provides an embedded Go client for the jobmatch
// profile-to-offer matching engine backed by Redis with search modules.
//
// The client wires the matching pipeline in-process: no HTTP server
// required. Point it at the database holding the precomputed offer
// corpus, plug in an embedding provider, and match:
//
//	client, _ := jobmatch.New(ctx,
//	    jobmatch.WithRedis("localhost:6379", ""),
//	    jobmatch.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	matches, _ := client.MatchUser(ctx, "user-1", []jobmatch.Profile{{
//	    ID:         "p1",
//	    Name:       "Backend",
//	    Title:      "Go Developer",
//	    HardSkills: []string{"Go", "Redis"},
//	}}, 10)
//
// Offer ingestion goes through the same client:
//
//	_ = client.Offers().Upsert(ctx, jobmatch.Offer{
//	    ID:            "offer-1",
//	    Title:         "Senior Go Engineer",
//	    Description:   "...",
//	    IngestionDate: "2026-08-01",
//	})
//
// When an offer carries no precomputed vectors, the configured embedder
// vectorizes its title and description on upsert.
package jobmatch
