// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify maintains per-event WebSocket rooms for live updates.

Clients connect via GET /events/{id}/ws and receive JSON events as the
election progresses: eventCreated, voteUpdate, countUpdate, codeRotated.

Delivery is best effort and at most once. Publish never blocks: a
subscriber whose buffer is full is dropped rather than stalling the
voting path, and a missed update is recovered by the next poll. The
rotating access code itself is never broadcast - codeRotated carries
only the new expiry.
*/
package notify
