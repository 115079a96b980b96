// Package router provides view-model-first navigation across named regions.
//
// Destinations are registered under a Key as a pair of factories: one builds
// the view, the other the view-model. Each region owns a back-stack of
// entries and a Host that the top entry's view is attached to. Every
// back-stack and region mutation happens on one UI loop; requests may be
// issued from any goroutine.
//
// # Basic Usage
//
//	reg := router.NewRegistry()
//	router.RegisterPair(reg, "settings", newSettingsView, newSettingsViewModel,
//	    router.WithTitle("nav.settings"))
//
//	loop := router.NewLoop(nil)
//	go loop.Run(ctx)
//
//	ctrl := router.New(reg, loop, router.WithAnimation(router.FixedAnimation(150*time.Millisecond)))
//	ctrl.AddRegion("main", host, router.RegionOptions{MaxDepth: 16})
//
//	res := ctrl.NavigateTo(ctx, "main", "settings", router.Params{"tab": "wifi"})
//	if !res.OK() {
//	    // res.Kind says why: unknown_key, activation, cancelled...
//	}
//
//	ctrl.Back(ctx, "main")
//
// # Requests
//
// Navigate, GoBack and Clear return a *Request immediately. A request moves
// through Requested, Resolving (factories run off the loop), Transitioning
// (hooks and animation run on the loop) and ends Committed, Failed,
// Superseded or Cancelled. Per region at most one request is in flight. A
// newer request supersedes one that is still resolving; none of the
// superseded request's hooks run. A request that arrives during a transition
// waits, and only the newest waiting request survives.
//
// # Handoff
//
// A transition deactivates the outgoing view-model, waits for the animation,
// then hands parameters to and activates the incoming one. Only when
// activation succeeds is the back-stack mutated and the host updated, so a
// failed or cancelled transition leaves the region exactly as it was, with
// the outgoing view-model re-activated. Deactivation failures are logged
// and ignored.
//
// # Capabilities
//
// A view-model opts into hooks by implementing Lifecycle, ParameterReceiver
// or Disposer. Which of these a registration supports is determined once,
// not per navigation.
//
// # Loop Affinity
//
// Hosts and hooks are only ever called on the loop. Run the Loop on a
// dedicated goroutine or call Drain from a host's frame loop. WithDebug
// makes internal entry points panic when reached off the loop.
package router
