// Package triage turns raw classifier scores into a single category
// verdict, a risk score, and a sensitive-content flag. Threat and safe
// label families compete head to head, and low-confidence threat calls
// degrade to an uncertain verdict instead of an alert.
package triage
