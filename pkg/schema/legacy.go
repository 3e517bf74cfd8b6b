package schema

import (
	"github.com/travigo/treni/pkg/ctdf"
)

// legacyDetector handles the oldest flat format: Italian keys and bare
// HH:mm times anchored to the "data" field.
type legacyDetector struct{}

type legacyTreno struct {
	Numero any  `json:"numero"`
	Tipo   text `json:"tipo"`
	Da     text `json:"da"`
	A      text `json:"a"`
	Data   text `json:"data"`

	Ritardo any  `json:"ritardo"`
	Stato   text `json:"stato"`
	Note    text `json:"note"`

	Soppresso        any   `json:"soppresso"`
	FermateSoppresse texts `json:"fermate_soppresse"`

	UltimoRilevamento optional[struct {
		Stazione text `json:"stazione"`
		Ora      any  `json:"ora"`
	}] `json:"ultimo_rilevamento"`

	Origine optional[struct {
		Codice    text `json:"codice"`
		Timestamp any  `json:"timestamp"`
	}] `json:"origine"`

	FermateList list[legacyFermata] `json:"fermate_list"`
}

type legacyFermata struct {
	Nome   text `json:"nome"`
	Codice text `json:"codice"`

	Arrivo        any `json:"arrivo"`
	Partenza      any `json:"partenza"`
	ArrivoReale   any `json:"arrivo_reale"`
	PartenzaReale any `json:"partenza_reale"`

	Binario      text `json:"binario"`
	BinarioReale text `json:"binario_reale"`

	Ritardo   any  `json:"ritardo"`
	Soppressa any  `json:"soppressa"`
	Tipo      text `json:"tipo"`
}

func (legacyDetector) Name() string {
	return "legacy"
}

func (legacyDetector) Detect(p *Probe) bool {
	return p.Has("numero", "fermate_list")
}

func (legacyDetector) Extract(p *Probe, x *Extractor) Result {
	var treno legacyTreno
	if err := p.Decode(&treno); err != nil {
		return upstreamError("malformed legacy payload: %s", err)
	}

	raw := rawTrain{
		Number:      treno.Numero,
		KindLabel:   string(treno.Tipo),
		Origin:      string(treno.Da),
		Destination: string(treno.A),

		Delay: treno.Ritardo,

		Evidence: ctdf.DisruptionEvidence{
			CancelledFlag:   boolValue(treno.Soppresso),
			Subtitle:        string(treno.Stato),
			VariationText:   string(treno.Note),
			SuppressedStops: treno.FermateSoppresse,
		},

		LastDetectionStation: string(treno.UltimoRilevamento.Value.Stazione),
		LastDetectionTime:    treno.UltimoRilevamento.Value.Ora,

		Selection: ctdf.SelectionContext{
			OriginCode:           string(treno.Origine.Value.Codice),
			ReferenceTimestampMs: epochPointer(x.Resolver, treno.Origine.Value.Timestamp),
			Date:                 legacyDate(x, string(treno.Data)),
		},
		AnchorRaws: []any{treno.Origine.Value.Timestamp, string(treno.Data)},
	}

	for _, fermata := range treno.FermateList {
		raw.Stops = append(raw.Stops, rawStop{
			Name: string(fermata.Nome),
			Code: string(fermata.Codice),

			ArrivalScheduled:   fermata.Arrivo,
			ArrivalActual:      fermata.ArrivoReale,
			DepartureScheduled: fermata.Partenza,
			DepartureActual:    fermata.PartenzaReale,

			PlatformPlanned: string(fermata.Binario),
			PlatformActual:  string(fermata.BinarioReale),

			Suppressed: boolValue(fermata.Soppressa),
			TypeMarker: string(fermata.Tipo),
			Delay:      fermata.Ritardo,
		})
	}

	return x.Build(raw)
}

// legacyDate turns the YYYYMMDD "data" field into a run date.
func legacyDate(x *Extractor, data string) string {
	epoch, ok := x.Resolver.ResolveAbsolute(data)
	if !ok {
		return ""
	}

	return x.Resolver.BaseDay(epoch).Format("2006-01-02")
}
