// Package stats refreshes the per-delegate business gauges.
//
// # Overview
//
// The Aggregator reads the document store directly, outside any request scope,
// and publishes:
//
//	designaciones_referees_active{delegate}
//	designaciones_rules_enabled{delegate,type}
//	designaciones_matches_pending{delegate}
//
// Gauges are reset on every refresh so delegates without data disappear.
//
// # Scheduling
//
// Scheduler runs the refresh on a robfig/cron schedule:
//
//	sched := stats.NewScheduler(stats.NewAggregator(store, metrics), logger)
//	if err := sched.Start(ctx, "@every 5m"); err != nil { ... }
//	defer sched.Stop()
package stats
