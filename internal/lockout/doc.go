// Package lockout implements time-boxed failed-login accounting over
// Redis fixed-window counters. Crossing the threshold makes Check fail
// fast for the rest of the window, before any credential verification.
package lockout
