// Package timeline schedules a title clip and N comment clips onto a fixed
// duration.
//
// The total duration T is split into N+1 equal slots. Slot 0 carries the
// title, slots 1..N carry the comment audio in order. Audio longer than its
// slot is truncated, shorter audio is left as is and the slot tail stays
// silent. The merged AudioTrack always spans exactly T because every clip is
// placed at an absolute offset on a fixed-length track.
package timeline
