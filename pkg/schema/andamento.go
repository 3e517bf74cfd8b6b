package schema

import (
	"strings"

	"github.com/travigo/treni/pkg/ctdf"
	"golang.org/x/exp/slices"
)

// andamentoDetector handles the ViaggiaTreno andamentoTreno response.
type andamentoDetector struct{}

type andamentoTreno struct {
	NumeroTreno     any  `json:"numeroTreno"`
	Categoria       text `json:"categoria"`
	CompNumeroTreno text `json:"compNumeroTreno"`

	Origine      text `json:"origine"`
	Destinazione text `json:"destinazione"`
	IDOrigine    text `json:"idOrigine"`
	CodOrigine   text `json:"codOrigine"`

	DataPartenzaTreno       any  `json:"dataPartenzaTreno"`
	DataPartenzaTrenoAsDate text `json:"dataPartenzaTrenoAsDate"`

	Ritardo     any   `json:"ritardo"`
	CompRitardo texts `json:"compRitardo"`

	Provvedimento     any   `json:"provvedimento"`
	TipoTreno         text  `json:"tipoTreno"`
	SubTitle          text  `json:"subTitle"`
	DescrizioneVCO    text  `json:"descrizioneVCO"`
	CompProvvedimenti texts `json:"compProvvedimenti"`
	FermateSoppresse  texts `json:"fermateSoppresse"`

	StazioneUltimoRilevamento text `json:"stazioneUltimoRilevamento"`
	OraUltimoRilevamento      any  `json:"oraUltimoRilevamento"`

	Fermate list[andamentoFermata] `json:"fermate"`
}

type andamentoFermata struct {
	Stazione text `json:"stazione"`
	ID       text `json:"id"`

	ArrivoTeorico   any `json:"arrivo_teorico"`
	PartenzaTeorica any `json:"partenza_teorica"`
	ArrivoReale     any `json:"arrivoReale"`
	PartenzaReale   any `json:"partenzaReale"`

	Ritardo any `json:"ritardo"`

	BinarioProgrammatoArrivoDescrizione   text `json:"binarioProgrammatoArrivoDescrizione"`
	BinarioEffettivoArrivoDescrizione     text `json:"binarioEffettivoArrivoDescrizione"`
	BinarioProgrammatoPartenzaDescrizione text `json:"binarioProgrammatoPartenzaDescrizione"`
	BinarioEffettivoPartenzaDescrizione   text `json:"binarioEffettivoPartenzaDescrizione"`

	TipoFermata       text `json:"tipoFermata"`
	ActualFermataType any  `json:"actualFermataType"`
}

// tipoTreno values flagging a cancellation of the whole run or part of it
var (
	andamentoCancelledTypes = []string{"ST"}
	andamentoPartialTypes   = []string{"PP", "SI", "SF"}
)

func (andamentoDetector) Name() string {
	return "andamento"
}

func (andamentoDetector) Detect(p *Probe) bool {
	return p.Has("numeroTreno")
}

func (andamentoDetector) Extract(p *Probe, x *Extractor) Result {
	var treno andamentoTreno
	if err := p.Decode(&treno); err != nil {
		return upstreamError("malformed andamentoTreno payload: %s", err)
	}

	kindLabel := string(treno.Categoria)
	if kindLabel == "" {
		if fields := strings.Fields(string(treno.CompNumeroTreno)); len(fields) > 1 {
			kindLabel = fields[0]
		}
	}

	provvedimento, _ := numericInt(treno.Provvedimento)
	tipoTreno := strings.ToUpper(strings.TrimSpace(string(treno.TipoTreno)))

	originCode := string(treno.IDOrigine)
	if originCode == "" {
		originCode = string(treno.CodOrigine)
	}

	raw := rawTrain{
		Number:      treno.NumeroTreno,
		KindLabel:   kindLabel,
		Origin:      string(treno.Origine),
		Destination: string(treno.Destinazione),

		Delay:     treno.Ritardo,
		DelayText: treno.CompRitardo,

		Evidence: ctdf.DisruptionEvidence{
			CancelledFlag:   provvedimento == 1 || slices.Contains(andamentoCancelledTypes, tipoTreno),
			PartialFlag:     provvedimento == 2 || slices.Contains(andamentoPartialTypes, tipoTreno),
			Subtitle:        string(treno.SubTitle),
			VariationText:   string(treno.DescrizioneVCO),
			Notices:         treno.CompProvvedimenti,
			SuppressedStops: treno.FermateSoppresse,
		},

		LastDetectionStation: string(treno.StazioneUltimoRilevamento),
		LastDetectionTime:    treno.OraUltimoRilevamento,

		Selection: ctdf.SelectionContext{
			OriginCode:           originCode,
			ReferenceTimestampMs: epochPointer(x.Resolver, treno.DataPartenzaTreno),
			Date:                 strings.TrimSpace(string(treno.DataPartenzaTrenoAsDate)),
		},
		AnchorRaws: []any{treno.DataPartenzaTreno, string(treno.DataPartenzaTrenoAsDate)},
	}

	for _, fermata := range treno.Fermate {
		fermataType, _ := numericInt(fermata.ActualFermataType)

		raw.Stops = append(raw.Stops, rawStop{
			Name: string(fermata.Stazione),
			Code: string(fermata.ID),

			ArrivalScheduled:   fermata.ArrivoTeorico,
			ArrivalActual:      fermata.ArrivoReale,
			DepartureScheduled: fermata.PartenzaTeorica,
			DepartureActual:    fermata.PartenzaReale,

			PlatformPlanned: firstNonEmpty(fermata.BinarioProgrammatoPartenzaDescrizione, fermata.BinarioProgrammatoArrivoDescrizione),
			PlatformActual:  firstNonEmpty(fermata.BinarioEffettivoPartenzaDescrizione, fermata.BinarioEffettivoArrivoDescrizione),

			TypeMarker: stringValue(fermataType),
			Delay:      fermata.Ritardo,
		})
	}

	return x.Build(raw)
}

func firstNonEmpty[T ~string](values ...T) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(string(value)); trimmed != "" {
			return trimmed
		}
	}

	return ""
}
