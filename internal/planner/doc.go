// Package planner turns segment requests and compression settings into the
// decisions the media and pipeline packages consume: which stages a segment
// runs, which rate-control mode an encoder gets, and how long a batch has left.
package planner
