// Package telemetry publishes controller state over MQTT. Every brain
// owns the topic namespace brain/<id>/; monitors subscribe there to
// watch the device table without touching the control loop.
package telemetry
